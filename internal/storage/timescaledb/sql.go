package timescaledb

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;`

// The summary view joins every iteration to its run so convergence curves can
// be charted without touching the point arrays
const createSummaryViewSQL = `
CREATE OR REPLACE VIEW convergence_summary AS
SELECT
    r.run_id,
    r.method,
    r.uncertain_variable,
    r.layout,
    r.wake_model,
    r.noffset,
    r."offset",
    i.sample_count,
    i.samples,
    i.mean_gwh,
    i.std_gwh,
    i.degraded,
    r.started_at
FROM convergence_runs r
JOIN convergence_iterations i ON i.run_id = r.run_id
ORDER BY r.started_at, r.run_id, i.sample_count;
`
