package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// normalize converts v into the JSON value space (maps, slices, float64,
// string, bool, nil) that structpb accepts.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("payload is not JSON encodable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("payload is not JSON decodable: %w", err)
	}
	return out, nil
}

func encodeCall(call sdk.MethodCall) (*structpb.Struct, error) {
	fields := map[string]any{"method": call.Method}
	args, err := normalize(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("arguments: %w", err)
	}
	if args != nil {
		fields["arguments"] = args
	}
	return structpb.NewStruct(fields)
}

func decodeCall(s *structpb.Struct) (sdk.MethodCall, error) {
	m := s.AsMap()
	method, ok := m["method"].(string)
	if !ok {
		return sdk.MethodCall{}, fmt.Errorf("method must be a string")
	}
	return sdk.NewMethodCall(method, m["arguments"]), nil
}

func encodeResponse(resp sdk.Response) (*structpb.Struct, error) {
	fields := map[string]any{"kind": resp.Kind.String()}

	value, err := normalize(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	if value != nil {
		fields["value"] = value
	}

	if resp.Error != nil {
		details, err := normalize(resp.Error.Details)
		if err != nil {
			return nil, fmt.Errorf("error details: %w", err)
		}
		envelope := map[string]any{
			"code":    resp.Error.Code,
			"message": resp.Error.Message,
		}
		if details != nil {
			envelope["details"] = details
		}
		fields["error"] = envelope
	}

	return structpb.NewStruct(fields)
}

func decodeResponse(s *structpb.Struct) (sdk.Response, error) {
	m := s.AsMap()

	kind, _ := m["kind"].(string)
	resp := sdk.Response{Kind: sdk.ResultKind(kind), Value: m["value"]}

	if envelope, ok := m["error"].(map[string]any); ok {
		code, _ := envelope["code"].(string)
		message, _ := envelope["message"].(string)
		resp.Error = &sdk.ErrorEnvelope{
			Code:    code,
			Message: message,
			Details: envelope["details"],
		}
	}

	if err := resp.Validate(); err != nil {
		return sdk.Response{}, err
	}
	return resp, nil
}

func encodeMetadata(m sdk.PluginMetadata) (*structpb.Struct, error) {
	methods := make([]any, len(m.Methods))
	for i, name := range m.Methods {
		methods[i] = name
	}
	return structpb.NewStruct(map[string]any{
		"id":              m.ID,
		"name":            m.Name,
		"version":         m.Version,
		"channel":         m.Channel,
		"description":     m.Description,
		"min_api_version": m.MinAPIVersion,
		"methods":         methods,
	})
}

func decodeMetadata(s *structpb.Struct) sdk.PluginMetadata {
	m := s.AsMap()
	md := sdk.PluginMetadata{
		ID:            stringField(m, "id"),
		Name:          stringField(m, "name"),
		Version:       stringField(m, "version"),
		Channel:       stringField(m, "channel"),
		Description:   stringField(m, "description"),
		MinAPIVersion: stringField(m, "min_api_version"),
	}
	if methods, ok := m["methods"].([]any); ok {
		for _, v := range methods {
			if name, ok := v.(string); ok {
				md.Methods = append(md.Methods, name)
			}
		}
	}
	return md
}

func encodeHealth(h sdk.HealthStatus) (*structpb.Struct, error) {
	fields := map[string]any{
		"healthy":    h.Healthy,
		"message":    h.Message,
		"checked_at": h.CheckedAt.UTC().Format(time.RFC3339Nano),
	}
	details, err := normalize(h.Details)
	if err != nil {
		return nil, fmt.Errorf("health details: %w", err)
	}
	if details != nil {
		fields["details"] = details
	}
	return structpb.NewStruct(fields)
}

func decodeHealth(s *structpb.Struct) sdk.HealthStatus {
	m := s.AsMap()
	healthy, _ := m["healthy"].(bool)
	h := sdk.HealthStatus{
		Healthy: healthy,
		Message: stringField(m, "message"),
	}
	if details, ok := m["details"].(map[string]any); ok {
		h.Details = details
	}
	if t, err := time.Parse(time.RFC3339Nano, stringField(m, "checked_at")); err == nil {
		h.CheckedAt = t
	}
	return h
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
