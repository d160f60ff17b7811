package service

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// AgentsConfig — веса и параметры агентов из configs/agents.yaml.
type AgentsConfig struct {
	Weights map[string]float64 `yaml:"weights"`
	Risk    RiskParams         `yaml:"risk"`
	Gamma   GammaParams        `yaml:"gamma"`
}

type RiskParams struct {
	MaxATRPct float64 `yaml:"max_atr_pct"`
}

type GammaParams struct {
	ShortGammaConfidence float64 `yaml:"short_gamma_confidence"`
	LongGammaConfidence  float64 `yaml:"long_gamma_confidence"`
}

func defaultAgentsConfig() AgentsConfig {
	return AgentsConfig{
		Weights: map[string]float64{},
		Risk:    RiskParams{MaxATRPct: 5.0},
		Gamma:   GammaParams{ShortGammaConfidence: 75, LongGammaConfidence: 55},
	}
}

// LoadAgentsConfig читает yaml с весами. Пустой путь или отсутствие файла —
// дефолты, битый yaml — ошибка.
func LoadAgentsConfig(path string) (AgentsConfig, error) {
	cfg := defaultAgentsConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "read agents config")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse agents config")
	}
	if cfg.Weights == nil {
		cfg.Weights = map[string]float64{}
	}
	if cfg.Risk.MaxATRPct <= 0 {
		cfg.Risk.MaxATRPct = 5.0
	}
	return cfg, nil
}

// Weight возвращает вес агента, 1.0 если не задан.
func (c AgentsConfig) Weight(agent string) float64 {
	if w, ok := c.Weights[agent]; ok && w > 0 {
		return w
	}
	return 1.0
}
