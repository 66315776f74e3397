package kernel

// EngineVersion is the weft engine version, recorded with every
// analysis run a store keeps.
const EngineVersion = "0.1.0"
