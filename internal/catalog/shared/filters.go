package shared

// ListFilters narrows master-data listings.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// SortOrder builds a safe ORDER BY clause from whitelisted columns.
func SortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "id":
		return "id " + dir
	case "name":
		return "name " + dir
	default:
		return "name " + dir
	}
}
