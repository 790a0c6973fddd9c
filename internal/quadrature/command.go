package quadrature

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/windaep/internal/types"
	"github.com/chrissnell/windaep/internal/uq"
)

var _ uq.QuadratureProvider = (*CommandProvider)(nil)

// Request is the message written to a quadrature solver process
type Request struct {
	SampleCount int       `json:"sample_count"`
	Abscissas   []float64 `json:"abscissas"`
	PDFWeights  []float64 `json:"pdf_weights"`
}

// Response is the message a quadrature solver process writes back
type Response struct {
	Nodes   []float64 `json:"nodes"`
	Weights []float64 `json:"weights"`
	Error   string    `json:"error,omitempty"`
}

// CommandProvider runs an external solver once per rule. The request is
// msgpack-encoded on the process's stdin and the response is read from its
// stdout.
type CommandProvider struct {
	argv []string
}

// NewCommandProvider returns a provider that runs argv
func NewCommandProvider(argv []string) (*CommandProvider, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, types.ConfigErrorf("quadrature command is empty")
	}
	return &CommandProvider{argv: append([]string(nil), argv...)}, nil
}

// Quadrature implements uq.QuadratureProvider
func (c *CommandProvider) Quadrature(n int, abscissas, pdfWeights []float64) ([]float64, []float64, error) {
	payload, err := encode(&Request{SampleCount: n, Abscissas: abscissas, PDFWeights: pdfWeights})
	if err != nil {
		return nil, nil, types.ProviderErrorf("encoding request: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(c.argv[0], c.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, nil, types.ProviderErrorf("running %s: %v: %s", c.argv[0], err, strings.TrimSpace(stderr.String()))
	}

	var resp Response
	if err := decode(stdout.Bytes(), &resp); err != nil {
		return nil, nil, types.ProviderErrorf("decoding response from %s: %v", c.argv[0], err)
	}
	if resp.Error != "" {
		return nil, nil, types.ProviderErrorf("%s: %s", c.argv[0], resp.Error)
	}
	return resp.Nodes, resp.Weights, nil
}

// Serve answers one request read from r with the rule built by provider and
// writes the response to w. Solver failures are reported inside the response.
func Serve(r io.Reader, w io.Writer, provider uq.QuadratureProvider) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}

	var req Request
	if err := decode(raw, &req); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}

	var resp Response
	resp.Nodes, resp.Weights, err = provider.Quadrature(req.SampleCount, req.Abscissas, req.PDFWeights)
	if err != nil {
		resp = Response{Error: err.Error()}
	}

	payload, err := encode(&resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	_, err = w.Write(payload)
	return err
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(raw []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
