package cache

// Chaves Redis compartilhadas entre o board-processor (escrita) e o
// wager-service (leitura).

func BoardKey(raceID, pool string) string { return "board:" + raceID + ":" + pool }

func ScratchedKey(raceID string) string { return "scratched:" + raceID }

func SlipKey(slipID string) string { return "slip:" + slipID }
