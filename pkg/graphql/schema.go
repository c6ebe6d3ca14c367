package graphql

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"

	"transfer-dapp-api/internal/graph"
	"transfer-dapp-api/internal/model"
	"transfer-dapp-api/internal/notify"
)

type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

func NewHandler(resolver *graph.Resolver) (http.Handler, error) {
	schema, err := createSchema(resolver)
	if err != nil {
		return nil, err
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Error parsing request body", http.StatusBadRequest)
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		json.NewEncoder(w).Encode(result)
	}), nil
}

func optionalString(args map[string]interface{}, name string) *string {
	if v, ok := args[name].(string); ok {
		return &v
	}
	return nil
}

func createSchema(resolver *graph.Resolver) (graphql.Schema, error) {
	formType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransferForm",
		Fields: graphql.Fields{
			"addressTo": &graphql.Field{Type: graphql.String},
			"amount":    &graphql.Field{Type: graphql.String},
			"keyword":   &graphql.Field{Type: graphql.String},
			"message":   &graphql.Field{Type: graphql.String},
		},
	})

	transferType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Transfer",
		Fields: graphql.Fields{
			"addressFrom": &graphql.Field{Type: graphql.String},
			"addressTo":   &graphql.Field{Type: graphql.String},
			"timestamp":   &graphql.Field{Type: graphql.String},
			"message":     &graphql.Field{Type: graphql.String},
			"keyword":     &graphql.Field{Type: graphql.String},
			"amount":      &graphql.Field{Type: graphql.String},
			"baseUnits": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rec, ok := p.Source.(model.TransferRecord)
					if !ok || rec.BaseUnits == nil {
						return "0", nil
					}
					return rec.BaseUnits.String(), nil
				},
			},
		},
	})

	stateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProviderState",
		Fields: graphql.Fields{
			"account":   &graphql.Field{Type: graphql.String},
			"connected": &graphql.Field{Type: graphql.Boolean},
			"loading":   &graphql.Field{Type: graphql.Boolean},
			"state":     &graphql.Field{Type: graphql.String},
			"count":     &graphql.Field{Type: graphql.Int},
			"countSet":  &graphql.Field{Type: graphql.Boolean},
			"lastError": &graphql.Field{Type: graphql.String},
			"lastKind":  &graphql.Field{Type: graphql.String},
			"form":      &graphql.Field{Type: formType},
			"transfers": &graphql.Field{Type: graphql.NewList(transferType)},
		},
	})

	receiptType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransferReceipt",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"from":         &graphql.Field{Type: graphql.String},
			"to":           &graphql.Field{Type: graphql.String},
			"amount":       &graphql.Field{Type: graphql.String},
			"baseUnits":    &graphql.Field{Type: graphql.String},
			"valueTxHash":  &graphql.Field{Type: graphql.String},
			"recordTxHash": &graphql.Field{Type: graphql.String},
			"blockNumber":  &graphql.Field{Type: graphql.Int},
			"count":        &graphql.Field{Type: graphql.Int},
		},
	})

	alertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Alert",
		Fields: graphql.Fields{
			"message": &graphql.Field{Type: graphql.String},
			"at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if a, ok := p.Source.(notify.Alert); ok {
						return a.At.UTC().Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
		},
	})

	submissionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Submission",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"from":         &graphql.Field{Type: graphql.String},
			"to":           &graphql.Field{Type: graphql.String},
			"amount":       &graphql.Field{Type: graphql.String},
			"message":      &graphql.Field{Type: graphql.String},
			"keyword":      &graphql.Field{Type: graphql.String},
			"valueTxHash":  &graphql.Field{Type: graphql.String},
			"recordTxHash": &graphql.Field{Type: graphql.String},
			"reason":       &graphql.Field{Type: graphql.String},
			"status": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if s, ok := p.Source.(model.Submission); ok {
						return string(s.Status), nil
					}
					return nil, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if s, ok := p.Source.(model.Submission); ok {
						return s.CreatedAt.UTC().Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"state": &graphql.Field{
				Type: stateType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.State(), nil
				},
			},
			"transfers": &graphql.Field{
				Type: graphql.NewList(transferType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Transfers(), nil
				},
			},
			"transferCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.State().Count, nil
				},
			},
			"alerts": &graphql.Field{
				Type: graphql.NewList(alertType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Alerts(), nil
				},
			},
			"unreconciled": &graphql.Field{
				Type: graphql.NewList(submissionType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Unreconciled(p.Context)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"connectWallet": &graphql.Field{
				Type: stateType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.ConnectWallet(p.Context)
				},
			},
			"updateField": &graphql.Field{
				Type: formType,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"value": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.UpdateField(p.Args["name"].(string), p.Args["value"].(string))
				},
			},
			"resetForm": &graphql.Field{
				Type: formType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.ResetForm(), nil
				},
			},
			"refresh": &graphql.Field{
				Type: stateType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Refresh(p.Context), nil
				},
			},
			"submitTransfer": &graphql.Field{
				Type: receiptType,
				Args: graphql.FieldConfigArgument{
					"addressTo": &graphql.ArgumentConfig{Type: graphql.String},
					"amount":    &graphql.ArgumentConfig{Type: graphql.String},
					"keyword":   &graphql.ArgumentConfig{Type: graphql.String},
					"message":   &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					args := graph.SubmitArgs{
						AddressTo: optionalString(p.Args, "addressTo"),
						Amount:    optionalString(p.Args, "amount"),
						Keyword:   optionalString(p.Args, "keyword"),
						Message:   optionalString(p.Args, "message"),
					}
					return resolver.SubmitTransfer(p.Context, args)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
