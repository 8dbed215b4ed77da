package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"moveflow/internal/core"
)

// QuoteRequestDraft is the structured output of the quote assistant: a filled
// booking form, never a price. Pricing stays in the deterministic engine.
type QuoteRequestDraft struct {
	MoveType             string   `json:"move_type" jsonschema_description:"One of: local, distance, international"`
	MoveSize             string   `json:"move_size" jsonschema_description:"One of: small, medium, large, office"`
	StartFloors          int      `json:"start_floors" jsonschema_description:"Floor number at the start address, 0 for ground floor"`
	StartElevator        bool     `json:"start_elevator" jsonschema_description:"Whether the start address has an elevator"`
	EndFloors            int      `json:"end_floors" jsonschema_description:"Floor number at the destination, 0 for ground floor"`
	EndElevator          bool     `json:"end_elevator" jsonschema_description:"Whether the destination has an elevator"`
	ServiceIDs           []string `json:"service_ids" jsonschema_description:"Additional services the customer asked for, from: packing, unpacking, cleaning, storage, piano, assembly"`
	NeedsClarification   bool     `json:"needs_clarification" jsonschema_description:"True when the description is too vague to fill the form"`
	ClarificationMessage string   `json:"clarification_message" jsonschema_description:"The question to ask the customer when clarification is needed, otherwise empty"`
	Confidence           float64  `json:"confidence" jsonschema_description:"Confidence in the extraction, 0.0 to 1.0"`
	Reasoning            string   `json:"reasoning" jsonschema_description:"Short explanation of how the form was filled"`
}

// Normalize lowercases the enum fields and trims the service list.
func (d *QuoteRequestDraft) Normalize() {
	d.MoveType = strings.ToLower(strings.TrimSpace(d.MoveType))
	d.MoveSize = strings.ToLower(strings.TrimSpace(d.MoveSize))
	services := d.ServiceIDs[:0]
	for _, id := range d.ServiceIDs {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			services = append(services, id)
		}
	}
	d.ServiceIDs = services
}

// Validate checks the draft against the booking form's domain. A draft that
// asks for clarification is exempt: its form fields are not meant to be used.
func (d *QuoteRequestDraft) Validate() error {
	if d.NeedsClarification {
		if d.ClarificationMessage == "" {
			return fmt.Errorf("clarification requested without a question")
		}
		return nil
	}
	move := d.MoveSpecification()
	if err := move.Validate(); err != nil {
		return err
	}
	for _, id := range d.ServiceIDs {
		if _, ok := core.LookupCatalogService(id); !ok {
			return fmt.Errorf("unknown additional service %q", id)
		}
	}
	return nil
}

// MoveSpecification converts the draft into the booking form's move fields.
func (d *QuoteRequestDraft) MoveSpecification() core.MoveSpecification {
	return core.MoveSpecification{
		MoveType: core.MoveType(d.MoveType),
		MoveSize: core.MoveSize(d.MoveSize),
		Start:    core.Location{Floors: d.StartFloors, Elevator: d.StartElevator},
		End:      core.Location{Floors: d.EndFloors, Elevator: d.EndElevator},
	}
}

// SelectedServices converts the draft's service list into form selections.
func (d *QuoteRequestDraft) SelectedServices() []core.SelectedService {
	services := make([]core.SelectedService, 0, len(d.ServiceIDs))
	for _, id := range d.ServiceIDs {
		services = append(services, core.SelectedService{ServiceID: id, Quantity: 1, Selected: true})
	}
	return services
}

// AssistOutcome is what the agent hands back: either a usable draft or a
// clarification question for the customer.
type AssistOutcome struct {
	Draft              *QuoteRequestDraft
	NeedsClarification bool
	Clarification      string
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// QuoteAssist interprets a free-text move description into a quote-request
// draft using structured output. The model fills the form; it never sees the
// rate table and never produces an amount.
func (a *Agent) QuoteAssist(ctx context.Context, naturalLanguage string) (*AssistOutcome, error) {
	prompt := fmt.Sprintf(`You are the intake assistant of a Swedish moving company.
Your goal is to turn a customer's free-text description of their move into a structured quote request form.
Rules:
1. move_type is "local" (within the city), "distance" (between cities) or "international".
2. move_size is "small" (1 room), "medium" (2-3 rooms), "large" (4+ rooms) or "office".
3. Floors count from 0 = ground floor. Only set elevator true when the customer says there is one.
4. service_ids may only contain: packing, unpacking, cleaning, storage, piano, assembly.
5. NEVER invent prices or amounts. You fill the form; the pricing engine computes the quote.
6. If the description does not pin down move_type or move_size, set needs_clarification and ask ONE short question in the customer's language.
7. Provide a confidence score (0.0-1.0) and brief reasoning.

Customer message: %s`, naturalLanguage)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "quote_request_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A structured quote request form for a moving company"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var draft QuoteRequestDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	if draft.NeedsClarification {
		return &AssistOutcome{NeedsClarification: true, Clarification: draft.ClarificationMessage}, nil
	}
	return &AssistOutcome{Draft: &draft}, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v QuoteRequestDraft
	return reflector.Reflect(v)
}
