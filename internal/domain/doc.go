// Package domain holds the value types shared by the analytics core, the
// insights service and the repositories: campaigns, daily metric records,
// published posts and embedded content.
//
// Nothing here performs I/O. Types carry JSON tags and small pure helpers
// only, and the package imports no other internal package.
package domain
