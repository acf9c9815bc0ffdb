package store

// seedSnapshot is the demonstration content shown before anything has been
// persisted.
func seedSnapshot() Snapshot {
	return Snapshot{
		Projects: []Project{
			{
				ID:          "seed-project-skyline",
				Name:        "Skyline Residences",
				Description: "A 24-storey residential tower with a landscaped podium and underground parking.",
				ImageURL:    "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?auto=format&fit=crop&q=80&w=800",
			},
			{
				ID:          "seed-project-harbor",
				Name:        "Harbor Business Park",
				Description: "Three low-rise office blocks built around a shared courtyard and transit plaza.",
				ImageURL:    "https://images.unsplash.com/photo-1497366216548-37526070297c?auto=format&fit=crop&q=80&w=800",
			},
			{
				ID:          "seed-project-riverside",
				Name:        "Riverside Community Center",
				Description: "A timber-framed civic hall with a library wing and outdoor amphitheatre.",
				ImageURL:    DefaultProjectImage,
			},
		},
		Clients: []Client{
			{
				ID:          "seed-client-rowan",
				Name:        "Rowan Patel",
				Description: "They delivered our headquarters two weeks early and kept us informed at every milestone.",
				Designation: "CEO, Patel Logistics",
				ImageURL:    DefaultClientImage,
			},
			{
				ID:          "seed-client-morgan",
				Name:        "Morgan Lee",
				Description: "Thoughtful design input and a site team that respected our neighbours throughout the build.",
				Designation: "Facilities Director",
				ImageURL:    "https://images.unsplash.com/photo-1494790108377-be9c29b29330?auto=format&fit=crop&q=80&w=800",
			},
			{
				ID:          "seed-client-sam",
				Name:        "Sam Okafor",
				Description: "Transparent budgeting made a complicated renovation feel simple.",
				Designation: "Interior Designer",
				ImageURL:    "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?auto=format&fit=crop&q=80&w=800",
			},
		},
		Contacts:    []Contact{},
		Subscribers: []Subscriber{},
	}
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Projects:    []Project{},
		Clients:     []Client{},
		Contacts:    []Contact{},
		Subscribers: []Subscriber{},
	}
}
