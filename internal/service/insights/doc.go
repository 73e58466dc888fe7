// Package insights serves the campaign analytics operations.
//
// The service fetches campaigns, metric series and content through the
// repository interfaces defined here, runs the pure calculators in
// internal/analytics, and caches organization-wide reports. It never builds
// SQL and never writes to the stores it reads from.
//
// Repository implementations live in repository/postgres/,
// repository/sqlite/ and snowflake/.
package insights
