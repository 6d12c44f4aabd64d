// Package parser extracts structured records from downloaded pages by
// running their parse rules and replacing the page's stored records with
// the result.
package parser
