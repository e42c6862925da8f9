package models

// Document store collection names. They match the names the mobile app and
// the dashboard already read from.
const (
	CollectionChats             = "chats"
	CollectionMessages          = "messages"
	CollectionUsers             = "users"
	CollectionUserLocations     = "user_locations"
	CollectionHistoricalSites   = "historical_sites"
	CollectionTrivia            = "trivia"
	CollectionKnowledgeBase     = "knowledge_base"
	CollectionLocationContext   = "locationContext"
	CollectionMessageLogs       = "message_logs"
	CollectionMagicWords        = "magicWord"
	CollectionMagicWordRequests = "magicWordUser"
	CollectionServiceRequests   = "service_requests"
	CollectionServiceOrders     = "serviceOrder"
	CollectionPayments          = "order"
	CollectionMonuments         = "serviceMonument"
	CollectionServiceLanguages  = "serviceLanguage"
)
