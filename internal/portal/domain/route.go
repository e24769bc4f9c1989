package domain

// Route maps a path to a view. Routes are fixed at startup.
type Route struct {
	Path         string
	View         string
	RequiresAuth bool
}
