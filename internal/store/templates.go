package store

import (
	"time"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// Catalog returns the closed set of seed templates offered at deploy time
func Catalog() []api.Template {
	return []api.Template{
		{ID: "blog", Name: "Blog / CMS", Description: "Posts, comments, users", Icon: "📝"},
		{ID: "ecom", Name: "E-commerce", Description: "Products, cart, orders", Icon: "🛒"},
		{ID: "crud", Name: "Dashboard / CRUD", Description: "Data tables, charts", Icon: "📊"},
	}
}

// Seed returns the initial document store for a template. Unknown template
// identifiers degrade to an empty store rather than failing the deployment.
func Seed(templateID string) Document {
	now := time.Now().UTC().Format(time.RFC3339)

	switch templateID {
	case "blog":
		return Document{
			"posts": {
				{
					"id":        "1",
					"title":     "Welcome to your blog!",
					"content":   "This is your first post. Edit or delete it to get started.",
					"author":    "Admin",
					"published": true,
					"createdAt": now,
				},
			},
			"comments": {},
			"users":    {},
		}
	case "ecom":
		return Document{
			"products": {
				{
					"id":          "1",
					"name":        "Sample Product",
					"price":       29.99,
					"description": "This is a sample product.",
					"stock":       100,
					"image":       "https://via.placeholder.com/150",
				},
			},
			"carts":  {},
			"orders": {},
			"users":  {},
		}
	case "crud":
		return Document{
			"items": {
				{
					"id":     "1",
					"name":   "Sample Item 1",
					"type":   "example",
					"status": "active",
				},
				{
					"id":     "2",
					"name":   "Sample Item 2",
					"type":   "example",
					"status": "pending",
				},
			},
			"settings": {
				{
					"id":           "1",
					"theme":        "light",
					"itemsPerPage": 10,
				},
			},
		}
	}

	return Document{}
}
