package config

import (
	"embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed static.yaml
var embeddedStatic embed.FS

// DefaultVolatility applies when no category substring matches, per
// price_updater.py's _get_category_volatility fallback.
const DefaultVolatility = 0.3

// TimeAdjustment names the three time-of-day bias bands.
type TimeAdjustment struct {
	MorningRush float64 `yaml:"morning_rush"`
	EveningRush float64 `yaml:"evening_rush"`
	LateNight   float64 `yaml:"late_night"`
}

// DefaultTimeAdjustments are the bias bands used when no static config is
// loaded; they equal the embedded static.yaml values.
var DefaultTimeAdjustments = TimeAdjustment{MorningRush: 0.02, EveningRush: 0.02, LateNight: -0.01}

// StaticConfig holds the YAML-loaded tables that drive price volatility and
// semantic-index domain hints; LoadRouteConfigurations-style (see the
// teacher's DynamicPricingEngine.LoadRouteConfigurations) external config,
// generalized to this domain's two tables.
type StaticConfig struct {
	CategoryVolatility map[string]float64 `yaml:"category_volatility"`
	TimeAdjustments    TimeAdjustment     `yaml:"time_adjustments"`
	DomainHints        map[string]string  `yaml:"domain_hints"`
}

// LoadStatic reads the static YAML config from path, falling back to the
// module-embedded default when path is empty or unreadable.
func LoadStatic(path string) (*StaticConfig, error) {
	var raw []byte
	var err error
	if path != "" {
		raw, err = os.ReadFile(path)
	}
	if path == "" || err != nil {
		raw, err = embeddedStatic.ReadFile("static.yaml")
		if err != nil {
			return nil, err
		}
	}
	var sc StaticConfig
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Volatility returns the configured volatility of a category whose name is a
// substring of productName, else DefaultVolatility. When several categories
// match, which one is used is not defined (map iteration order).
func (sc *StaticConfig) Volatility(productName string) float64 {
	lower := strings.ToLower(productName)
	for category, v := range sc.CategoryVolatility {
		if strings.Contains(lower, category) {
			return v
		}
	}
	return DefaultVolatility
}
