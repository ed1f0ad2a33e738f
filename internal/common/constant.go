package common

// AuthorizationHeaderName carries the bearer access token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// JournalEntityType is the entity name written to the audit log for journals.
const JournalEntityType = "JournalRecord"
