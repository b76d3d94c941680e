// Package layout renders the application shell document: header with logo,
// title and warning banner, the navigation list, the page outlet and footer.
package layout
