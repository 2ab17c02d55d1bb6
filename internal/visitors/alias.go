package visitors

import "hash/fnv"

var visitorAdjectives = []string{
	"Amber", "Bold", "Brisk", "Calm", "Clever", "Cosmic", "Crimson", "Curious", "Daring", "Dusky",
	"Eager", "Electric", "Fearless", "Gentle", "Gilded", "Glowing", "Hidden", "Humble", "Icy", "Jolly",
	"Keen", "Lively", "Lucky", "Mellow", "Misty", "Nimble", "Noble", "Quiet", "Radiant", "Rapid",
	"Rustic", "Silent", "Silver", "Sleepy", "Stormy", "Sunny", "Swift", "Tidy", "Velvet", "Witty",
}

var visitorAnimals = []string{
	"Badger", "Bison", "Crane", "Dolphin", "Eagle", "Falcon", "Ferret", "Gecko", "Heron", "Ibex",
	"Jackal", "Koala", "Lemur", "Lynx", "Marten", "Narwhal", "Ocelot", "Orca", "Otter", "Panda",
	"Puffin", "Quokka", "Raven", "Salamander", "Seal", "Sparrow", "Tapir", "Toucan", "Walrus", "Wombat",
}

// VisitorAlias returns a readable name for a visitor identifier. Equal
// identifiers always get the same alias; distinct ones may collide.
func VisitorAlias(visitorID string) string {
	h := fnv.New32a()
	h.Write([]byte(visitorID))
	index := h.Sum32()

	adj := visitorAdjectives[index%uint32(len(visitorAdjectives))]
	animal := visitorAnimals[(index/uint32(len(visitorAdjectives)))%uint32(len(visitorAnimals))]
	return adj + " " + animal
}
