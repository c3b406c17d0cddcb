package simulate

import (
	"fmt"
	"math/rand"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/pkg/client"
)

// Choice is the set of values a simulated sensor may send for one field.
type Choice struct {
	Field  string
	Label  string
	Values []string
}

// Choices lists every request field in model order.
type Choices []Choice

// DefaultChoices is used when the service does not publish its categories.
func DefaultChoices() Choices {
	return Choices{
		{Field: "file_size", Label: "File Size", Values: []string{"Small", "Medium", "Large"}},
		{Field: "data_type", Label: "Data Type", Values: []string{"Text", "Image", "Video", "Boolean", "Numerical"}},
		{Field: "required_speed", Label: "Required Speed", Values: []string{"Low", "Medium", "High"}},
		{Field: "security_level", Label: "Security Level", Values: []string{"Low", "Medium", "High"}},
		{Field: "real_time", Label: "Real-Time Requirement", Values: []string{"Yes", "No"}},
		{Field: "connectivity", Label: "Connectivity Type", Values: []string{"WiFi", "Ethernet", "Cellular"}},
		{Field: "cost_sensitivity", Label: "Cost Sensitivity", Values: []string{"Low", "Medium", "High"}},
	}
}

// ChoicesFromModel builds Choices from a GET /model response.
func ChoicesFromModel(info *client.ModelInfo) (Choices, error) {
	if info == nil || len(info.Columns) == 0 {
		return nil, fmt.Errorf("model info lists no columns")
	}
	out := make(Choices, 0, len(info.Columns))
	for _, col := range info.Columns {
		if col.Field == "" || len(col.Categories) == 0 {
			return nil, fmt.Errorf("model column %q has no field or categories", col.Column)
		}
		out = append(out, Choice{
			Field:  col.Field,
			Label:  col.Column,
			Values: append([]string(nil), col.Categories...),
		})
	}
	return out, nil
}

// Random picks one value per field.
func (cs Choices) Random(rng *rand.Rand) client.Params {
	p := make(client.Params, len(cs))
	for _, c := range cs {
		p[c.Field] = c.Values[rng.Intn(len(c.Values))]
	}
	return p
}
