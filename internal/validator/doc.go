// Package validator decides whether a fetched response is content worth
// storing. A page that the policy rejects is committed as failed with the
// rejection reason instead of being stored as downloaded.
package validator
