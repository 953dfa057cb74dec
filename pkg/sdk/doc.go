// Package sideline provides a Go client for the sideline fantasy
// football API: roster and matchup views, AI advice endpoints, the
// conversational assistant and budget usage reports.
//
//	client := sideline.New("http://localhost:8080", sideline.WithAPIKey("secret"))
//	roster, _ := client.Roster(ctx, 0)
//	advice, _ := client.CompareAdvice(ctx, "Joe Mixon", "Bijan Robinson")
//	reply, _ := client.Chat(ctx, "", "who should I start at flex?")
package sideline
