package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ericzander/hotfis/pkg/hotfis"
	"github.com/ericzander/hotfis/pkg/hotfis/config"
	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/store/sqlite"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "SQLite database of stored engines")
		engineName = flag.String("engine", "", "Name of a stored engine (requires --db)")
		yamlPath   = flag.String("yaml", "", "Engine definition in YAML format")
		groupsPath = flag.String("groups", "", "Membership group definition file")
		rulesPath  = flag.String("rules", "", "Rule definition file")
		method     = flag.String("method", "mamdani", "Inference method: mamdani or tsk")
		inputSpec  = flag.String("in", "", "One-shot inputs, e.g. \"temperature=67\"")
		list       = flag.Bool("list", false, "List stored engines and exit")
		runs       = flag.Int("runs", 0, "Show the N most recent runs for --engine and exit")
	)
	flag.Parse()

	log := logrus.New()

	if *method != "mamdani" && *method != "tsk" {
		log.Fatalf("unknown method %q", *method)
	}

	ctx := context.Background()

	var svc *hotfis.Service
	if *dbPath != "" {
		st, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.WithError(err).Fatal("open store")
		}
		defer st.Close()
		svc = hotfis.New(st)
	}

	if *list {
		if svc == nil {
			log.Fatal("--list requires --db")
		}
		names, err := svc.ListEngines(ctx)
		if err != nil {
			log.WithError(err).Fatal("list engines")
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	if *runs > 0 {
		if svc == nil || *engineName == "" {
			log.Fatal("--runs requires --db and --engine")
		}
		rs, err := svc.Runs(ctx, *engineName, *runs)
		if err != nil {
			log.WithError(err).Fatal("list runs")
		}
		for _, r := range rs {
			fmt.Printf("%s  %-7s  in=%v  out=%v\n", r.ID, r.Method, r.Inputs, r.Outputs)
		}
		return
	}

	engine, err := loadEngine(ctx, svc, *engineName, *yamlPath, *groupsPath, *rulesPath)
	if err != nil {
		log.WithError(err).Fatal("load engine")
	}

	// One-shot mode
	if *inputSpec != "" {
		if err := evaluate(engine, *method, *inputSpec); err != nil {
			log.WithError(err).Fatal("evaluate")
		}
		return
	}

	// Interactive mode
	required := engine.Ruleset().InputNames()
	fmt.Printf("Inputs: %s\n", strings.Join(required, ", "))
	fmt.Println("Enter inputs as name=value pairs (Ctrl+D to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := evaluate(engine, *method, line); err != nil {
			fmt.Println("Error:", err)
		}
	}
}

func loadEngine(ctx context.Context, svc *hotfis.Service, name, yamlPath, groupsPath, rulesPath string) (*fis.Engine, error) {
	switch {
	case name != "":
		if svc == nil {
			return nil, fmt.Errorf("--engine requires --db")
		}
		return svc.Engine(ctx, name)
	case yamlPath != "":
		return config.LoadEngineYAML(yamlPath)
	case groupsPath != "" && rulesPath != "":
		gs, err := config.LoadGroupset(groupsPath)
		if err != nil {
			return nil, err
		}
		rs, err := config.LoadRuleset(rulesPath)
		if err != nil {
			return nil, err
		}
		return fis.New(gs, rs)
	default:
		return nil, fmt.Errorf("need --engine, --yaml, or --groups with --rules")
	}
}

// evaluate parses "name=value" pairs, runs inference, and prints crisp
// outputs in sorted order.
func evaluate(engine *fis.Engine, method, spec string) error {
	inputs, err := parseInputs(spec)
	if err != nil {
		return err
	}

	var out map[string]values.Value
	switch method {
	case "tsk":
		out, err = engine.EvalTSK(inputs)
		if err != nil {
			return err
		}
	default:
		curves, err := engine.EvalMamdani(inputs)
		if err != nil {
			return err
		}
		out = make(map[string]values.Value, len(curves))
		for name, curve := range curves {
			crisp, err := fis.DefuzzMamdani(curve)
			if err != nil {
				return err
			}
			out[name] = crisp
		}
	}

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s = %.4f\n", name, out[name].Float())
	}
	return nil
}

func parseInputs(spec string) (map[string]values.Value, error) {
	inputs := make(map[string]values.Value)
	for _, field := range strings.Fields(strings.ReplaceAll(spec, ",", " ")) {
		name, val, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", field)
		}
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		inputs[name] = values.Scalar(x)
	}
	return inputs, nil
}
