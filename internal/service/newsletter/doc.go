// Package newsletter implements subscription lifecycle management.
//
// The service layer contains the business rules for subscribing, listing,
// and removing newsletter subscribers. It depends on the Repository
// interface defined in this package and should never import from api/.
//
// The Postgres implementation lives in repository/postgres.
package newsletter
