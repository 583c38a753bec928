package nudge

// Catalog maps a nudge category to its interchangeable messages. Messages may
// use the placeholders understood by templates.Interpolate, such as {{interval}}.
type Catalog map[string][]string

var DefaultCatalog = Catalog{
	"water": {
		"💧 Time to hydrate! Your brain is 73% water. Drink up!",
		"💧 Hey there! Been a while since you had water. Stay hydrated!",
		"💧 Hydration check! Grab some water to keep your focus sharp.",
		"💧 Your body needs water! Take a quick sip and get back to crushing it.",
	},
	"posture": {
		"🧘 Posture check! Sit up straight and relax those shoulders.",
		"🧘 Time to adjust your posture. Your back will thank you!",
		"🧘 Quick reminder: Roll your shoulders and straighten your spine.",
		"🧘 Sitting properly? Let's fix that posture for better focus!",
	},
	"eyes": {
		"👀 Eye break time! Look at something 20 feet away for 20 seconds.",
		"👀 Your eyes need a rest. Look away from the screen for a moment.",
		"👀 20-20-20 rule: Look 20 feet away for 20 seconds every 20 minutes.",
		"👀 Give your eyes a break! Blink and look into the distance.",
	},
	"stretch": {
		"🤸 Time to stretch! Stand up and move around for a minute.",
		"🤸 Your body needs movement. Quick stretch break!",
		"🤸 Stretch those muscles! A 1-minute break boosts productivity.",
		"🤸 Stand up, stretch, and shake it out. You've earned it!",
	},
	"break": {
		"☕ You've been focused for {{interval}} minutes! Take a 5-minute break.",
		"☕ Great work! Time for a short break to recharge.",
		"☕ Break time! Step away and come back refreshed.",
		"☕ You're doing awesome! Quick break to maintain that momentum.",
	},
	"motivation": {
		"⚡ You're doing great! Keep up the focused work!",
		"⚡ Productivity mode activated! You're on fire today!",
		"⚡ Small progress is still progress. Keep going!",
		"⚡ Every focused moment counts. You've got this!",
	},
}
