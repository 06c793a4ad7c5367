// Package httpclient builds the *http.Client shared by the catalog, the
// page fetcher and the site parser.
//
// A client has a per-request timeout, a cookie jar, a redirect cap and,
// optionally, routes every connection through a SOCKS5 proxy.
package httpclient
