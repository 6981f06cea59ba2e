package mqtt

import "strings"

// TopicPrefix is the root of every topic the daemon publishes or subscribes to.
//
// Layout:
//
//	cosmos/{node}/soh        heartbeat: state-of-health wire text
//	cosmos/{node}/set        incoming wire text applied to the registry
//	cosmos/{node}/catalogue  retained CBOR registry catalogue
//	cosmos/{node}/status     retained online/offline status (LWT)
const TopicPrefix = "cosmos"

// Topic leaves under cosmos/{node}/.
const (
	LeafSOH       = "soh"
	LeafSet       = "set"
	LeafCatalogue = "catalogue"
	LeafStatus    = "status"
)

// Topics builds node topics. Using it keeps topic names consistent between
// publishers and subscribers.
//
//	topics := mqtt.Topics{}
//	topics.SOH("cubesat1") // "cosmos/cubesat1/soh"
type Topics struct{}

func nodeTopic(node, leaf string) string {
	return TopicPrefix + "/" + node + "/" + leaf
}

// SOH returns the heartbeat topic of a node.
func (Topics) SOH(node string) string { return nodeTopic(node, LeafSOH) }

// Set returns the topic on which a node accepts wire text updates.
func (Topics) Set(node string) string { return nodeTopic(node, LeafSet) }

// Catalogue returns the retained registry catalogue topic of a node.
func (Topics) Catalogue(node string) string { return nodeTopic(node, LeafCatalogue) }

// Status returns the retained online/offline status topic of a node.
func (Topics) Status(node string) string { return nodeTopic(node, LeafStatus) }

// AllSOH matches the heartbeats of every node.
func (Topics) AllSOH() string { return nodeTopic("+", LeafSOH) }

// AllCatalogues matches the catalogue of every node.
func (Topics) AllCatalogues() string { return nodeTopic("+", LeafCatalogue) }

// AllStatus matches the status of every node.
func (Topics) AllStatus() string { return nodeTopic("+", LeafStatus) }

// Parse splits "cosmos/{node}/{leaf}" into node and leaf. It reports false
// for topics outside the layout.
func (Topics) Parse(topic string) (node, leaf string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// ValidNodeName reports whether name can be used as a topic level: it must
// be non-empty and free of separators and wildcards.
func ValidNodeName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/+#")
}
