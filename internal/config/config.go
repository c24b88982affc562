package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/atollwallet/coinselect/internal/core/domain"
)

const (
	// FeeBaseSizeKey is the key to customize the base size overhead of the
	// linear fee model.
	FeeBaseSizeKey = "FEE_BASE_SIZE"
	// FeeInputSizeKey is the key to customize the size cost of one input in
	// the linear fee model.
	FeeInputSizeKey = "FEE_INPUT_SIZE"
	// FeeOutputSizeKey is the key to customize the size cost of one output in
	// the linear fee model.
	FeeOutputSizeKey = "FEE_OUTPUT_SIZE"
	// MaxInputsKey is the key to customize the default limit on the number of
	// inputs a selection can use.
	MaxInputsKey = "MAX_INPUTS"
	// SearchBudgetKey is the key to customize the number of nodes the
	// branch-and-bound search is allowed to visit before falling back to
	// first-fit.
	SearchBudgetKey = "SEARCH_BUDGET"
	// ExtraUtxoProbabilityKey is the key to customize the probability for the
	// random strategy in maximum privacy mode to pick one extra utxo for
	// obfuscation.
	ExtraUtxoProbabilityKey = "EXTRA_UTXO_PROBABILITY"
	// LogLevelKey is the key to customize the log level to catch more
	// specific or more high level logs.
	LogLevelKey = "LOG_LEVEL"
)

var (
	vip *viper.Viper

	defaultFeeBaseSize          = 10
	defaultFeeInputSize         = 68
	defaultFeeOutputSize        = 31
	defaultMaxInputs            = 128
	defaultSearchBudget         = 100000
	defaultExtraUtxoProbability = 0.3
	defaultLogLevel             = 4
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("COINSELECT")
	vip.AutomaticEnv()

	vip.SetDefault(FeeBaseSizeKey, defaultFeeBaseSize)
	vip.SetDefault(FeeInputSizeKey, defaultFeeInputSize)
	vip.SetDefault(FeeOutputSizeKey, defaultFeeOutputSize)
	vip.SetDefault(MaxInputsKey, defaultMaxInputs)
	vip.SetDefault(SearchBudgetKey, defaultSearchBudget)
	vip.SetDefault(ExtraUtxoProbabilityKey, defaultExtraUtxoProbability)
	vip.SetDefault(LogLevelKey, defaultLogLevel)

	if err := validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(GetInt(LogLevelKey)))
}

func validate() error {
	if GetInt(FeeInputSizeKey) <= 0 {
		return fmt.Errorf("fee input size must be a positive number")
	}
	if GetInt(FeeOutputSizeKey) <= 0 {
		return fmt.Errorf("fee output size must be a positive number")
	}
	if GetInt(MaxInputsKey) <= 0 {
		return fmt.Errorf("max inputs must be a positive number")
	}
	if GetInt(SearchBudgetKey) <= 0 {
		return fmt.Errorf("search budget must be a positive number")
	}
	if p := GetFloat(ExtraUtxoProbabilityKey); p < 0 || p > 1 {
		return fmt.Errorf("extra utxo probability must be in range [0, 1]")
	}
	if l := GetInt(LogLevelKey); l < int(log.PanicLevel) || l > int(log.TraceLevel) {
		return fmt.Errorf(
			"log level must be in range [%d, %d]", log.PanicLevel, log.TraceLevel,
		)
	}
	return nil
}

// GetFeeModel returns the fee model built from the configured size
// constants.
func GetFeeModel() domain.FeeModel {
	return domain.FeeModel{
		BaseSize:   uint64(GetInt(FeeBaseSizeKey)),
		InputSize:  uint64(GetInt(FeeInputSizeKey)),
		OutputSize: uint64(GetInt(FeeOutputSizeKey)),
	}
}

func GetMaxInputs() int {
	return GetInt(MaxInputsKey)
}

func GetSearchBudget() int {
	return GetInt(SearchBudgetKey)
}

func GetExtraUtxoProbability() float64 {
	return GetFloat(ExtraUtxoProbabilityKey)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}
