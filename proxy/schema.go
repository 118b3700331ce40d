package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// requestSchema is the compiled JSON Schema for inbound chat requests,
// reflected from ChatRequest so the wire contract and the Go type cannot
// drift apart. Unknown and malformed shapes are rejected at the boundary
// instead of being relayed upstream.
var requestSchema = mustCompileRequestSchema()

func mustCompileRequestSchema() *jsonschema.Schema {
	reflector := invopop.Reflector{DoNotReference: true, Anonymous: true}
	generated := reflector.Reflect(&ChatRequest{})

	raw, err := json.Marshal(generated)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal chat request schema: %v", err))
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse chat request schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("chat-request.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add chat request schema resource: %v", err))
	}

	schema, err := compiler.Compile("chat-request.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile chat request schema: %v", err))
	}
	return schema
}

// validateRequestBody checks raw against the compiled schema. The returned
// error is user-presentable.
func validateRequestBody(raw []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("undecodable request body: %w", err)
	}
	if err := requestSchema.Validate(instance); err != nil {
		return fmt.Errorf("request body does not match the chat contract: %w", err)
	}
	return nil
}
