package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/facilops/sitepane/internal/core/domain"
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

	siteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Site",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"site_id":    &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"category":   &graphql.Field{Type: graphql.String},
			"selectable": &graphql.Field{Type: graphql.Boolean},
			"distance":   &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center":   &graphql.Field{Type: geoPointType},
			"span_lat": &graphql.Field{Type: graphql.Float},
			"span_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"user":  &graphql.Field{Type: graphql.String},
			"mode":  &graphql.Field{Type: graphql.String},
			"state": &graphql.Field{Type: graphql.String},
			"sites": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sites": &graphql.Field{
				Type:        graphql.NewList(siteType),
				Description: "List sites for a display mode",
				Args: graphql.FieldConfigArgument{
					"mode":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.SiteModeAll)},
					"user":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					mode := domain.SiteMode(p.Args["mode"].(string))
					user := p.Args["user"].(string)
					limit := p.Args["limit"].(int)
					return deps.Sites.List(p.Context, mode, user, limit)
				},
			},
			"site": &graphql.Field{
				Type:        siteType,
				Description: "Get a site by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Sites.GetByID(p.Context, id)
				},
			},
			"sitesNearby": &graphql.Field{
				Type:        graphql.NewList(siteType),
				Description: "Find sites near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Sites.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"searchSites": &graphql.Field{
				Type:        graphql.NewList(siteType),
				Description: "Search sites by name (fuzzy matching)",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Sites.Search(p.Context, q, nil, limit)
				},
			},
			"viewport": &graphql.Field{
				Type:        viewportType,
				Description: "Fit a camera region around the sites of a display mode",
				Args: graphql.FieldConfigArgument{
					"mode": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.SiteModeAll)},
					"user": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					mode := domain.SiteMode(p.Args["mode"].(string))
					user := p.Args["user"].(string)
					sites, err := deps.Sites.List(p.Context, mode, user, 0)
					if err != nil {
						return nil, err
					}
					return deps.Fitter.FitSites(sites, nil), nil
				},
			},
			"sessions": &graphql.Field{
				Type:        graphql.NewList(sessionType),
				Description: "Live overlay sessions on this instance",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Overlay.Sessions(), nil
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
