package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/forestwatch/gapdetect"
	"github.com/forestwatch/gapdetect/log"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	cfgPath := flag.String("config", "gapdetect.yaml", "pipeline config file (yaml)")
	outDir := flag.String("out", "", "override output directory")
	flag.Parse()
	defer log.Sync()

	cfg := gapdetect.DefaultConfig()
	data, err := os.ReadFile(*cfgPath)
	if err != nil {
		log.Error("read config failed", zap.String("path", *cfgPath), zap.Error(err))
		os.Exit(1)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		log.Error("parse config failed", zap.String("path", *cfgPath), zap.Error(err))
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}

	p, err := gapdetect.NewPipeline(cfg)
	if err != nil {
		log.Error("init pipeline failed", zap.Error(err))
		os.Exit(1)
	}
	sum, err := p.Run()
	if err != nil {
		log.Error("pipeline failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(sum.String())
}
