// Package client is the Go SDK for the encryption predictor service.
//
// It wraps the three read/predict endpoints and turns every non-2xx response
// into an *APIError carrying the service's error text.
//
// # Asking for a recommendation
//
//	c, err := client.New("http://localhost:5000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := c.Predict(ctx, 1, client.Params{
//	    "file_size":        "Small",
//	    "data_type":        "Text",
//	    "required_speed":   "Low",
//	    "security_level":   "High",
//	    "real_time":        "No",
//	    "connectivity":     "WiFi",
//	    "cost_sensitivity": "Low",
//	})
//	fmt.Println(pred.Algorithm) // e.g. RSA
//
// # Discovering categories
//
// Model returns the request fields in model order together with the values
// each one accepts, so callers never need to hard-code them:
//
//	info, _ := c.Model(ctx)
//	for _, col := range info.Columns {
//	    fmt.Println(col.Field, col.Categories)
//	}
//
// # Handling errors
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
//	    fmt.Println(apiErr.Message) // Missing parameters: security_level
//	}
//
// # Failing fast
//
// Many sensors hammering a dead service is wasteful. WithCircuitBreaker opens
// after five consecutive transport errors or 5xx responses; while open, calls
// return gobreaker.ErrOpenState without touching the network:
//
//	c, _ := client.New(url, client.WithCircuitBreaker(30*time.Second, nil))
package client
