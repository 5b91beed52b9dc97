// Package middleware provides HTTP middleware for the playlist service.
//
// It includes request logging in W3C Extended Log Format, Prometheus request
// metrics labelled by route template, and gzip compression of JSON exports.
package middleware
