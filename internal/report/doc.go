// Package report renders a markdown summary of a workspace's crawl state:
// page counts per lifecycle status, loaded rules, and recent failures.
package report
