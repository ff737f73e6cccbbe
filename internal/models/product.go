package models

// Product is a catalog entry. Targets lists the downstream bot usernames an
// approved order grants access to, in presentation order.
type Product struct {
	Code    string   `json:"code"`
	Title   string   `json:"title"`
	Price   float64  `json:"price"`
	Targets []string `json:"targets"`
}
