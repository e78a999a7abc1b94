package agentconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/agent.schema.json
var schemaBytes []byte

const (
	createSchemaURL = "agent.schema.json"
	updateSchemaURL = "agent-update.schema.json"
)

var (
	createSchema *jsonschema.Schema
	updateSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
	printer      = message.NewPrinter(language.English)
)

// fieldTypes names the expected JSON type of each field for type errors.
var fieldTypes = map[string]string{
	FieldAgentName:          "a string",
	FieldDescription:        "a string",
	FieldServiceProvider:    "a string",
	FieldModelName:          "a string",
	FieldSystemPrompt:       "a string",
	FieldDoStream:           "a boolean",
	FieldAssignedFunctions:  "an array of strings",
	FieldAssignedAgents:     "an array of strings",
	FieldAssignedMCPServers: "an array of strings",
	FieldCustomSettings:     "an object",
}

// getSchemas compiles the embedded agent schema once. The update schema is
// the same document with its required list removed.
func getSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		obj, ok := doc.(map[string]any)
		if !ok {
			compileErr = fmt.Errorf("agent schema is not a JSON object")
			return
		}
		updateDoc := maps.Clone(obj)
		delete(updateDoc, "required")

		c := jsonschema.NewCompiler()
		if err := c.AddResource(createSchemaURL, obj); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		if err := c.AddResource(updateSchemaURL, updateDoc); err != nil {
			compileErr = fmt.Errorf("adding update schema resource: %w", err)
			return
		}
		if createSchema, err = c.Compile(createSchemaURL); err != nil {
			compileErr = fmt.Errorf("compiling schema: %w", err)
			return
		}
		if updateSchema, err = c.Compile(updateSchemaURL); err != nil {
			compileErr = fmt.Errorf("compiling update schema: %w", err)
		}
	})
	return createSchema, updateSchema, compileErr
}

// Validate checks raw input against the agent schema and returns the
// normalized config. Absent array fields default to empty slices and an
// absent custom_settings to an empty mapping. A JSON
// null is treated as an absent field. Failures are returned as a
// *ValidationError listing every offending field; nothing is returned on
// failure.
func Validate(raw map[string]any) (*AgentConfig, error) {
	schema, _, err := getSchemas()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	clean := dropNulls(raw)
	if err := check(schema, clean); err != nil {
		return nil, err
	}

	var cfg AgentConfig
	if err := decode(clean, &cfg); err != nil {
		return nil, err
	}
	cfg.AssignedFunctions = cloneStrings(cfg.AssignedFunctions)
	cfg.AssignedAgents = cloneStrings(cfg.AssignedAgents)
	cfg.AssignedMCPServers = cloneStrings(cfg.AssignedMCPServers)
	cfg.CustomSettings = cloneSettings(cfg.CustomSettings)
	return &cfg, nil
}

// ValidateUpdate applies the per-field rules of Validate to a partial
// update. No field is required and an update with no recognized fields is
// a valid no-op.
func ValidateUpdate(raw map[string]any) (*AgentConfigUpdate, error) {
	_, schema, err := getSchemas()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	clean := dropNulls(raw)
	if err := check(schema, clean); err != nil {
		return nil, err
	}

	var u AgentConfigUpdate
	if err := decode(clean, &u); err != nil {
		return nil, err
	}
	if _, ok := clean[FieldCustomSettings]; ok && u.CustomSettings == nil {
		u.CustomSettings = map[string]any{}
	}
	return &u, nil
}

// check runs the schema against raw and converts failures to a
// *ValidationError.
func check(schema *jsonschema.Schema, raw map[string]any) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("converting input to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("unexpected validation error type: %w", err)
	}

	var issues []Issue
	collectIssues(ve, raw, &issues)
	if len(issues) == 0 {
		issues = append(issues, Issue{Rule: RuleSchema, Message: ve.Error()})
	}
	return &ValidationError{Issues: sortIssues(dedupeIssues(issues))}
}

// collectIssues walks the error tree and translates leaf errors into
// field-level issues.
func collectIssues(ve *jsonschema.ValidationError, raw map[string]any, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, raw, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	keyword := ""
	if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
		keyword = kwPath[len(kwPath)-1]
	}
	if keyword == "allOf" || keyword == "$ref" || keyword == "properties" || keyword == "" {
		return
	}

	field := ""
	if len(ve.InstanceLocation) > 0 {
		field = ve.InstanceLocation[0]
	}

	switch keyword {
	case "required":
		for _, f := range RequiredFields {
			if _, ok := raw[f]; !ok {
				*issues = append(*issues, requiredIssue(f))
			}
		}
	case "minLength":
		*issues = append(*issues, requiredIssue(field))
	case "enum":
		*issues = append(*issues, Issue{
			Field:   field,
			Rule:    RuleEnum,
			Message: fmt.Sprintf("%s must be one of %s", field, providerList()),
		})
	case "type":
		*issues = append(*issues, typeIssue(ve.InstanceLocation))
	default:
		*issues = append(*issues, Issue{
			Field:   field,
			Rule:    keyword,
			Message: fmt.Sprintf("%s: %s", field, ve.ErrorKind.LocalizedString(printer)),
		})
	}
}

func requiredIssue(field string) Issue {
	return Issue{Field: field, Rule: RuleRequired, Message: field + " is required"}
}

func typeIssue(location []string) Issue {
	if len(location) == 0 {
		return Issue{Rule: RuleType, Message: "agent configuration must be an object"}
	}
	field := location[0]
	if len(location) > 1 {
		return Issue{
			Field:   field,
			Rule:    RuleType,
			Message: fmt.Sprintf("%s[%s] must be a string", field, strings.Join(location[1:], "/")),
		}
	}
	want, ok := fieldTypes[field]
	if !ok {
		want = "a valid value"
	}
	return Issue{Field: field, Rule: RuleType, Message: fmt.Sprintf("%s must be %s", field, want)}
}

// dedupeIssues removes issues with the same field, rule and message.
func dedupeIssues(issues []Issue) []Issue {
	seen := make(map[string]bool)
	var result []Issue
	for _, issue := range issues {
		key := issue.Field + "|" + issue.Rule + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// sortIssues orders issues by canonical field order. Issues without a known
// field go last.
func sortIssues(issues []Issue) []Issue {
	rank := func(field string) int {
		if i := slices.Index(Fields, field); i >= 0 {
			return i
		}
		return len(Fields)
	}
	slices.SortStableFunc(issues, func(a, b Issue) int {
		return rank(a.Field) - rank(b.Field)
	})
	return issues
}

// dropNulls returns a copy of raw without nil values.
func dropNulls(raw map[string]any) map[string]any {
	clean := make(map[string]any, len(raw))
	for k, v := range raw {
		if v != nil {
			clean[k] = v
		}
	}
	return clean
}

// decode copies schema-checked input into a typed struct using the json
// field tags.
func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding agent configuration: %w", err)
	}
	return nil
}
