// Package domain contains the core entities shared across services,
// repositories, and handlers. Types here carry no behavior beyond basic
// validation helpers; business rules live in the service packages.
package domain
