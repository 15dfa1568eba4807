// Package main provides the entry point for the pdf-price-redactor CLI.
//
// pdf-price-redactor removes prices from Norwegian order and invoice PDFs:
// the contents of Pris and Total columns, Kampanje sections and MVA rows.
//
// Usage:
//
//	pdf-price-redactor process --input ./in --output ./out
//	pdf-price-redactor serve --watch
//	pdf-price-redactor redact faktura.pdf
//
// See --help for all available options.
package main

func main() {
	Execute()
}
