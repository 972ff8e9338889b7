package domain

// ActorKind discriminates the identity variants a mutation can be
// attributed to.
type ActorKind int

const (
	ActorAnonymous ActorKind = iota
	ActorNamed
	ActorAuthenticated
)

// AnonymousName is the attribution recorded when no identity was supplied.
const AnonymousName = "anonymous"

// Actor is the normalized identity attached to a mutation. It is resolved
// once at the protocol boundary; services only ever see Actor.String().
type Actor struct {
	Kind     ActorKind
	Name     string
	ID       string
	Username string
	Email    string
}

// Anonymous returns the actor used when no identity was supplied.
func Anonymous() Actor { return Actor{Kind: ActorAnonymous} }

// Named returns an actor identified only by a display name.
func Named(name string) Actor {
	if name == "" {
		return Anonymous()
	}
	return Actor{Kind: ActorNamed, Name: name}
}

// Authenticated returns an actor carrying a structured identity.
func Authenticated(id, username, email string) Actor {
	if id == "" && username == "" && email == "" {
		return Anonymous()
	}
	return Actor{Kind: ActorAuthenticated, ID: id, Username: username, Email: email}
}

// String renders the attribution string stored on tasks and activity
// records.
func (a Actor) String() string {
	switch a.Kind {
	case ActorNamed:
		return a.Name
	case ActorAuthenticated:
		if a.Username != "" {
			return a.Username
		}
		if a.ID != "" {
			return a.ID
		}
		return a.Email
	default:
		return AnonymousName
	}
}
