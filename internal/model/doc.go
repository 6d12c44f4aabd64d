// Package model defines the persistent entities of the crawl engine:
// pages, the links discovered between them, and the key/value records
// extracted from their content. These types carry no behavior beyond
// validation and formatting; all mutation goes through the store package.
package model
