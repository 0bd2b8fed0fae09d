package dialogue

import "github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/nlu"

var greetingTemplates = []string{
	"Hello! Welcome to the admissions assistant. How can I help you today?",
	"Hi there! I'm here to answer your questions about admissions. What would you like to know?",
	"Welcome! Ask me anything about applying, deadlines, tuition, or campus life.",
}

var goodbyeTemplates = []string{
	"Goodbye! Feel free to come back if you have more questions. Good luck with your application!",
	"Thanks for chatting. Best of luck with your admission journey!",
	"Take care! Our admissions office is always happy to help if anything else comes up.",
}

var unknownTemplates = []string{
	"I'm not sure I understood that correctly.",
	"I didn't quite catch what you're looking for.",
	"That's outside what I can answer confidently.",
}

var introTemplates = map[nlu.Intent][]string{
	nlu.IntentAdmissionRequirements: {
		"Here's what you need to know about admission requirements:",
		"Great question about admission requirements!",
	},
	nlu.IntentApplicationDeadline: {
		"Here are the key application deadlines:",
		"Timing matters! Here's what you should know about deadlines:",
	},
	nlu.IntentTuitionFees: {
		"Here's an overview of tuition and fees:",
		"Let me break down the costs for you:",
	},
	nlu.IntentProgramsOffered: {
		"Here's what we offer academically:",
		"We have a wide range of programs:",
	},
	nlu.IntentFinancialAid: {
		"Here's how financial aid works:",
		"Good news, there are several ways to fund your education:",
	},
	nlu.IntentContactInfo: {
		"Here's how to reach us:",
		"You can get in touch with admissions directly:",
	},
	nlu.IntentCampusVisit: {
		"We'd love to show you around! Here's how visits work:",
		"Here's what you need to know about visiting campus:",
	},
	nlu.IntentHousing: {
		"Here's the housing situation:",
		"Let me tell you about living on campus:",
	},
}

var followUpSuggestions = map[nlu.Intent]string{
	nlu.IntentAdmissionRequirements: "Would you also like to know about application deadlines?",
	nlu.IntentApplicationDeadline:   "Would you like details on the admission requirements as well?",
	nlu.IntentTuitionFees:           "Would you like to hear about financial aid and scholarships?",
	nlu.IntentProgramsOffered:       "Is there a specific program you'd like to know more about?",
	nlu.IntentFinancialAid:          "Would you like to know the tuition figures these can offset?",
	nlu.IntentCampusVisit:           "Would you like our contact information to schedule a visit?",
	nlu.IntentHousing:               "Would you like to know what a campus visit includes?",
}
