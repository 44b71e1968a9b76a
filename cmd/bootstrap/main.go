// Command bootstrap imports engine definitions into a SQLite store so
// they can be evaluated later by name.
package main

import (
	"context"
	"flag"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ericzander/hotfis/pkg/hotfis"
	"github.com/ericzander/hotfis/pkg/hotfis/config"
	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/store/sqlite"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "SQLite database path (required)")
		name       = flag.String("name", "", "Engine name (defaults to the definition file basename)")
		yamlPath   = flag.String("yaml", "", "Engine definition in YAML format")
		groupsPath = flag.String("groups", "", "Membership group definition file")
		rulesPath  = flag.String("rules", "", "Rule definition file")
	)
	flag.Parse()

	log := logrus.New()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	var (
		engine *fis.Engine
		err    error
		source string
	)
	switch {
	case *yamlPath != "":
		engine, err = config.LoadEngineYAML(*yamlPath)
		source = *yamlPath
	case *groupsPath != "" && *rulesPath != "":
		engine, err = loadTextEngine(*groupsPath, *rulesPath)
		source = *groupsPath
	default:
		log.Fatal("need --yaml, or --groups with --rules")
	}
	if err != nil {
		log.WithError(err).Fatal("load engine definition")
	}

	engineName := *name
	if engineName == "" {
		base := filepath.Base(source)
		engineName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	ctx := context.Background()

	st, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer st.Close()

	svc := hotfis.New(st)
	if err := svc.SaveEngine(ctx, engineName, engine); err != nil {
		log.WithError(err).Fatal("save engine")
	}

	log.WithFields(logrus.Fields{
		"engine": engineName,
		"groups": len(engine.Groupset().Groups()),
		"rules":  len(engine.Ruleset().Rules()),
	}).Info("engine imported")
}

func loadTextEngine(groupsPath, rulesPath string) (*fis.Engine, error) {
	gs, err := config.LoadGroupset(groupsPath)
	if err != nil {
		return nil, err
	}
	rs, err := config.LoadRuleset(rulesPath)
	if err != nil {
		return nil, err
	}
	return fis.New(gs, rs)
}
