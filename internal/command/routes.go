package command

// DefaultRoutes is the pulse command table.
func DefaultRoutes() []Route {
	return []Route{
		{
			Name:     "alive",
			Keywords: []string{"alive"},
			New:      func() Handler { return &Alive{} },
		},
		{
			Name:     "notifications",
			Keywords: []string{"notifications", "all notifications"},
			New:      func() Handler { return &ListNotifications{} },
		},
		{
			Name:     "my notifications",
			Keywords: []string{"my notifications"},
			New:      func() Handler { return &MyNotifications{} },
		},
		{
			Name:     "notify",
			Keywords: []string{"notify"},
			MinArgs:  1,
			New:      func() Handler { return &Notify{} },
		},
		{
			Name:     "unnotify",
			Keywords: []string{"unnotify"},
			MinArgs:  1,
			New:      func() Handler { return &Unnotify{} },
		},
		{
			Name:     "tags",
			Keywords: []string{"tags", "list tags", "listtags", "all tags"},
			New:      func() Handler { return &ListTags{} },
		},
		{
			Name:       "add tag",
			Keywords:   []string{"addtag", "add tag"},
			MinArgs:    2,
			Privileged: true,
			New:        func() Handler { return &AddTag{} },
		},
		{
			Name:       "remove tag",
			Keywords:   []string{"removetag", "remove tag", "delete tag", "destroy tag", "poof tag"},
			MinArgs:    1,
			Privileged: true,
			New:        func() Handler { return &RemoveTag{} },
		},
	}
}
