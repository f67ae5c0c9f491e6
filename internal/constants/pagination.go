package constants

// Pagination Query Parameters
const (
	QueryParamPage = "page"
)

// PageSize is the fixed number of items per page on every list endpoint.
const PageSize = 10

const (
	DefaultPage = 1
	MinPage     = 1
)
