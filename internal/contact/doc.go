// Package contact validates, stores and announces submissions from the
// site's contact form.
package contact
