// Package helpers provides shared test utilities for Nonagon.
//
// # Database Mock
//
// MockDB implements database.Database with function fields:
//
//	db := &helpers.MockDB{
//	    QueryFunc: func(ctx context.Context, q string, vars map[string]interface{}) ([]interface{}, error) {
//	        return helpers.Results(helpers.OK(doc)), nil
//	    },
//	}
//
// Calls() and CallsMatching() expose the statements a test sent.
//
// # Pointer Helpers
//
//	helpers.StringPtr("value")
//	helpers.TimePtr(time.Now())
package helpers
