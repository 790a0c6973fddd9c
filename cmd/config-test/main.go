package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/chrissnell/windaep/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML study file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite study database")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <study.yaml> -sqlite <study.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	same := true
	for _, section := range []struct {
		name         string
		yaml, sqlite interface{}
	}{
		{"Study", yamlConfig.Study, sqliteConfig.Study},
		{"Direction distribution", yamlConfig.Distribution.Direction, sqliteConfig.Distribution.Direction},
		{"Speed distribution", yamlConfig.Distribution.Speed, sqliteConfig.Distribution.Speed},
		{"Quadrature", yamlConfig.Quadrature, sqliteConfig.Quadrature},
		{"Power model", yamlConfig.PowerModel, sqliteConfig.PowerModel},
	} {
		if reflect.DeepEqual(section.yaml, section.sqlite) {
			fmt.Printf("✓ %s matches\n", section.name)
		} else {
			same = false
			fmt.Printf("✗ %s differs\n  YAML:   %+v\n  SQLite: %+v\n", section.name, section.yaml, section.sqlite)
		}
	}

	fmt.Println("\nStorage Configuration:")
	same = compareStorage("JSON", yamlConfig.Storage.JSONFile, sqliteConfig.Storage.JSONFile) && same
	same = compareStorage("XLSX", yamlConfig.Storage.XLSX, sqliteConfig.Storage.XLSX) && same
	same = compareStorage("TimescaleDB", yamlConfig.Storage.TimescaleDB, sqliteConfig.Storage.TimescaleDB) && same

	fmt.Println("\nTest completed!")
	if !same {
		os.Exit(1)
	}
}

// compareStorage compares two optional backend sections, given as pointers
func compareStorage(name string, yaml, sqlite interface{}) bool {
	y, s := reflect.ValueOf(yaml), reflect.ValueOf(sqlite)
	switch {
	case y.IsNil() != s.IsNil():
		fmt.Printf("✗ %s configuration presence mismatch\n", name)
		return false
	case y.IsNil():
		fmt.Printf("✓ %s: both nil\n", name)
	case reflect.DeepEqual(y.Elem().Interface(), s.Elem().Interface()):
		fmt.Printf("✓ %s configuration matches\n", name)
	default:
		fmt.Printf("✗ %s configuration differs\n", name)
		return false
	}
	return true
}
