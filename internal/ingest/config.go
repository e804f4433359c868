package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/FAU-CDI/pgrdf/internal/codec"
	"github.com/FAU-CDI/pgrdf/internal/vocab"
	"golang.org/x/exp/slices"
)

// MultivalPolicy determines how multiple values of the same property are handled.
type MultivalPolicy string

const (
	// Overwrite keeps only the last value.
	Overwrite MultivalPolicy = "OVERWRITE"

	// Array accumulates all distinct values into an array.
	Array MultivalPolicy = "ARRAY"
)

// TypeMode determines how rdf:type statements are handled.
type TypeMode string

const (
	TypesAsLabels         TypeMode = "LABELS"
	TypesAsNodes          TypeMode = "NODES"
	TypesAsLabelsAndNodes TypeMode = "LABELS_AND_NODES"
)

// ConflictPolicy determines what happens when several nodes share an identity.
type ConflictPolicy string

const (
	// Skip skips the resource for the remainder of the batch.
	Skip ConflictPolicy = "SKIP"

	// Abort aborts the entire operation.
	Abort ConflictPolicy = "ABORT"
)

// Config configures a load or delete operation.
type Config struct {
	// CommitSize is the number of mapped statements after which a batch is committed.
	CommitSize int `toml:"commit_size"`

	HandleVocabURIs vocab.Mode `toml:"handle_vocab_uris"`

	// VocabMappings maps iris to names in MAP mode.
	VocabMappings map[string]string `toml:"vocab_mappings"`

	// Prefixes maps prefixes to namespaces.
	// They are added to the namespace table before any statement is handled.
	Prefixes map[string]string `toml:"prefixes"`

	// ApplyNeo4jNaming is only used in IGNORE and MAP mode.
	ApplyNeo4jNaming bool `toml:"apply_neo4j_naming"`

	// HandleMultival determines how repeated properties are stored.
	// When MultivalProperties is non-empty, only these predicates are multi-valued.
	HandleMultival     MultivalPolicy `toml:"handle_multival"`
	MultivalProperties []string       `toml:"multival_prop_list"`

	HandleRDFTypes TypeMode `toml:"handle_rdf_types"`

	KeepLangTag              bool     `toml:"keep_lang_tag"`
	LanguageFilter           string   `toml:"language_filter"`
	KeepCustomDataTypes      bool     `toml:"keep_custom_data_types"`
	CustomDataTypeProperties []string `toml:"custom_data_type_prop_list"`

	PredicateExclusionList []string `toml:"predicate_exclusion_list"`

	OnConflict ConflictPolicy `toml:"on_conflict"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CommitSize:      25_000,
		HandleVocabURIs: vocab.Shorten,
		HandleMultival:  Overwrite,
		HandleRDFTypes:  TypesAsLabels,
		OnConflict:      Skip,
	}
}

// LoadConfig reads a configuration file in toml format.
// Settings not present in the file keep their default value.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	return config, config.Validate()
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Validate normalizes and validates this configuration.
func (config *Config) Validate() error {
	if config.CommitSize <= 0 {
		return fmt.Errorf("%w: commit size must be positive", ErrInvalidConfig)
	}

	mode, err := vocab.ParseMode(string(config.HandleVocabURIs))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	config.HandleVocabURIs = mode

	config.HandleMultival = MultivalPolicy(strings.ToUpper(string(config.HandleMultival)))
	switch config.HandleMultival {
	case Overwrite, Array:
	default:
		return fmt.Errorf("%w: unknown multival policy %q", ErrInvalidConfig, config.HandleMultival)
	}

	config.HandleRDFTypes = TypeMode(strings.ToUpper(string(config.HandleRDFTypes)))
	switch config.HandleRDFTypes {
	case TypesAsLabels, TypesAsNodes, TypesAsLabelsAndNodes:
	default:
		return fmt.Errorf("%w: unknown rdf type handling %q", ErrInvalidConfig, config.HandleRDFTypes)
	}

	config.OnConflict = ConflictPolicy(strings.ToUpper(string(config.OnConflict)))
	switch config.OnConflict {
	case Skip, Abort:
	default:
		return fmt.Errorf("%w: unknown conflict policy %q", ErrInvalidConfig, config.OnConflict)
	}

	if mode == vocab.Map && len(config.VocabMappings) == 0 {
		return fmt.Errorf("%w: MAP mode requires vocabulary mappings", ErrInvalidConfig)
	}
	return nil
}

// Summary returns the settings of this configuration that differ from the default.
func (config Config) Summary() map[string]any {
	def := DefaultConfig()
	summary := make(map[string]any)

	if config.CommitSize != def.CommitSize {
		summary["commitSize"] = config.CommitSize
	}
	if config.HandleVocabURIs != def.HandleVocabURIs {
		summary["handleVocabUris"] = string(config.HandleVocabURIs)
	}
	if len(config.VocabMappings) > 0 {
		summary["vocabMappings"] = config.VocabMappings
	}
	if len(config.Prefixes) > 0 {
		summary["prefixes"] = config.Prefixes
	}
	if config.ApplyNeo4jNaming {
		summary["applyNeo4jNaming"] = true
	}
	if config.HandleMultival != def.HandleMultival {
		summary["handleMultival"] = string(config.HandleMultival)
	}
	if len(config.MultivalProperties) > 0 {
		summary["multivalPropList"] = config.MultivalProperties
	}
	if config.HandleRDFTypes != def.HandleRDFTypes {
		summary["handleRDFTypes"] = string(config.HandleRDFTypes)
	}
	if config.KeepLangTag {
		summary["keepLangTag"] = true
	}
	if config.LanguageFilter != "" {
		summary["languageFilter"] = config.LanguageFilter
	}
	if config.KeepCustomDataTypes {
		summary["keepCustomDataTypes"] = true
	}
	if len(config.CustomDataTypeProperties) > 0 {
		summary["customDataTypePropList"] = config.CustomDataTypeProperties
	}
	if len(config.PredicateExclusionList) > 0 {
		summary["predicateExclusionList"] = config.PredicateExclusionList
	}
	if config.OnConflict != def.OnConflict {
		summary["onConflict"] = string(config.OnConflict)
	}
	return summary
}

// multivalued checks if the given predicate is multi-valued.
func (config Config) multivalued(predicate string) bool {
	if config.HandleMultival != Array {
		return false
	}
	return len(config.MultivalProperties) == 0 || slices.Contains(config.MultivalProperties, predicate)
}

func (config Config) excluded(predicate string) bool {
	return slices.Contains(config.PredicateExclusionList, predicate)
}

func (config Config) codec() codec.Config {
	return codec.Config{
		KeepLangTag:              config.KeepLangTag,
		LanguageFilter:           config.LanguageFilter,
		KeepCustomDataTypes:      config.KeepCustomDataTypes,
		CustomDataTypeProperties: config.CustomDataTypeProperties,
	}
}
