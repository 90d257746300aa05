package topics

const (
	// Totalizador
	BoardSnapshots = "tote_board_snapshots"
	HorseStatus    = "horse_status_changes"

	// Bilhetes
	TicketPlaced = "ticket_placed"

	// DLQs
	TicketPlacedDLQ = "ticket_placed_dlq"
)

// Canais Redis Pub/Sub consumidos pelo hub WebSocket do wager-service
const (
	ChannelBoardBroadcast = "board_updates_broadcast"
	ChannelHorseBroadcast = "horse_status_broadcast"
)
