package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"position":    &graphql.Field{Type: geoPointType},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteStatus",
		Fields: graphql.Fields{
			"has_route":      &graphql.Field{Type: graphql.Boolean},
			"step":           &graphql.Field{Type: graphql.Int},
			"total_steps":    &graphql.Field{Type: graphql.Int},
			"balance":        &graphql.Field{Type: graphql.Int},
			"completed":      &graphql.Field{Type: graphql.Boolean},
			"current_target": &graphql.Field{Type: waypointType},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Profile",
		Fields: graphql.Fields{
			"user_id":   &graphql.Field{Type: graphql.String},
			"name":      &graphql.Field{Type: graphql.String},
			"interests": &graphql.Field{Type: graphql.String},
		},
	})

	shopItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ShopItem",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: graphql.Int},
			"category":    &graphql.Field{Type: graphql.String},
			"image_url":   &graphql.Field{Type: graphql.String},
			"active":      &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routeStatus": &graphql.Field{
				Type:        statusType,
				Description: "Current route progress for a user",
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := p.Args["user_id"].(string)
					return deps.Progression.CurrentStatus(p.Context, userID)
				},
			},
			"profile": &graphql.Field{
				Type:        profileType,
				Description: "User profile",
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := p.Args["user_id"].(string)
					return deps.Profiles.Get(p.Context, userID)
				},
			},
			"shopItems": &graphql.Field{
				Type:        graphql.NewList(shopItemType),
				Description: "Active reward catalog items",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Shop.ListActive(p.Context)
				},
			},
			"shopItem": &graphql.Field{
				Type:        shopItemType,
				Description: "A single catalog item",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Shop.Get(p.Context, id)
				},
			},
			"suggestInterests": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Refined interest suggestions for route generation",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := p.Args["input"].(string)
					return deps.Profiles.SuggestInterests(p.Context, input), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
