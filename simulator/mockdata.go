package simulator

import "github.com/kleeedolinux/datesync/model"

var mockProfiles = []model.Profile{
	{
		ID:                 "1",
		Name:               "Ana García",
		Username:           "ana_madrid",
		InstagramURL:       "https://instagram.com/ana_madrid",
		Platform:           "instagram",
		Age:                28,
		Location:           "Madrid, Spain",
		Bio:                "Photographer & travel enthusiast. Love exploring new places and capturing moments.",
		Interests:          []string{"Photography", "Travel", "Yoga", "Coffee", "Art"},
		CompatibilityScore: 85,
		Status:             "analyzed",
	},
	{
		ID:                 "2",
		Name:               "Laura Martín",
		Username:           "laura_bcn",
		InstagramURL:       "https://instagram.com/laura_bcn",
		Platform:           "instagram",
		Age:                26,
		Location:           "Barcelona, Spain",
		Bio:                "Marketing professional who loves fitness and good food. Always up for new adventures!",
		Interests:          []string{"Fitness", "Food", "Marketing", "Beach", "Dancing"},
		CompatibilityScore: 78,
		Status:             "contacted",
	},
	{
		ID:                 "3",
		Name:               "Sofía López",
		Username:           "sofia_sev",
		InstagramURL:       "https://instagram.com/sofia_sev",
		Platform:           "instagram",
		Age:                30,
		Location:           "Sevilla, Spain",
		Bio:                "Architect and wine lover. Passionate about design and good conversations.",
		Interests:          []string{"Architecture", "Wine", "Design", "Museums", "Books"},
		CompatibilityScore: 92,
		Status:             "active",
	},
}

var mockConversations = []model.Conversation{
	{ID: "conv-1", ProfileID: "1", ProfileName: "Ana García", Platform: "instagram", State: model.ConversationActive, ResponseRate: 0.85, EngagementScore: 78},
	{ID: "conv-2", ProfileID: "2", ProfileName: "Laura Martín", Platform: "instagram", State: model.ConversationEngaged, ResponseRate: 0.92, EngagementScore: 85},
	{ID: "conv-3", ProfileID: "3", ProfileName: "Sofía López", Platform: "instagram", State: model.ConversationWarming, ResponseRate: 0.95, EngagementScore: 92},
}

var mockOpportunities = []model.Opportunity{
	{
		ProfileID:         "1",
		ProfileName:       "Ana García",
		Type:              "story_reaction",
		Description:       "Ana reacted to your story about coffee. Perfect opportunity to start a conversation about her favorite coffee spots.",
		Confidence:        0.88,
		Priority:          "high",
		Signals:           []string{"story_reaction", "shared_interest:coffee"},
		SuggestedResponse: "Hey Ana! I saw you liked my coffee story 😊 Do you have a favorite coffee spot in Madrid?",
	},
	{
		ProfileID:         "2",
		ProfileName:       "Laura Martín",
		Type:              "online_status",
		Description:       "Laura is currently online. She has been responsive in the past and this could be a good time to continue the conversation.",
		Confidence:        0.75,
		Priority:          "medium",
		Signals:           []string{"online_now", "high_response_rate"},
		SuggestedResponse: "Hey Laura! How was your day? Did you end up trying that new restaurant?",
	},
	{
		ProfileID:         "3",
		ProfileName:       "Sofía López",
		Type:              "similar_interests",
		Description:       "Sofía posted about visiting a wine museum. You both share interests in wine and culture.",
		Confidence:        0.94,
		Priority:          "urgent",
		Signals:           []string{"new_post", "shared_interest:wine"},
		SuggestedResponse: "That wine museum looks amazing! 🍷 Would love some recommendations from a local wine expert!",
	},
}

var mockReplies = []string{
	"¡Hola! ¿Qué tal tu día?",
	"Jaja, me encanta esa idea 😊",
	"¿Conoces algún sitio bueno para tomar un café?",
	"Este fin de semana estoy libre, ¿tú?",
	"Acabo de volver de viaje, ¡fue increíble!",
}

var mockVariants = [][]model.Variant{
	{
		{Text: "Coffee lover detected! ☕ What's your go-to spot in the city?", Score: 0.82},
		{Text: "I bet you know all the best hidden gems... care to share a favorite?", Score: 0.75},
	},
	{
		{Text: "Hope you're having a great day! 😊 Did you make it to that restaurant?", Score: 0.87},
		{Text: "Quick question, did you try that restaurant yet? I need a recommendation!", Score: 0.83},
	},
	{
		{Text: "That wine museum looks amazing! Any recommendations?", Score: 0.9},
		{Text: "I'm planning to visit Sevilla soon, where should I start?", Score: 0.86},
	},
}
