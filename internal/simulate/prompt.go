package simulate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/pkg/client"
)

// Prompter asks a human for one value per field.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Line prints prompt and returns the trimmed answer.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	answer, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Params prompts for every field in cs. Answers are sent as typed; the
// service decides whether they are valid.
func (p *Prompter) Params(cs Choices) (client.Params, error) {
	fmt.Fprintln(p.out, "Please provide the following parameters:")
	params := make(client.Params, len(cs))
	for _, c := range cs {
		answer, err := p.Line(fmt.Sprintf("%s %v: ", c.Label, c.Values))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c.Field, err)
		}
		params[c.Field] = answer
	}
	return params, nil
}

// SendOnce sends params and prints the recommendation with the echoed input,
// or the service's error.
func SendOnce(ctx context.Context, pred Predictor, params client.Params, out io.Writer) error {
	res, err := pred.Predict(ctx, 0, params)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(out, "Error: %d - %s\n", apiErr.StatusCode, apiErr.Message)
			return nil
		}
		return fmt.Errorf("could not reach the predictor: %w", err)
	}

	fmt.Fprintln(out, "\nResult:")
	fmt.Fprintf(out, "Recommended encryption algorithm: %s\n", res.Algorithm)
	fmt.Fprintln(out, "\nInput parameters:")
	keys := make([]string, 0, len(res.Input))
	for k := range res.Input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %v\n", k, res.Input[k])
	}
	return nil
}
