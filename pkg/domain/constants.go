package domain

// CodePointScale divides a stimulus character's code point to obtain its seed activation.
const CodePointScale = 255.0

// InitialStimulus is the sentinel input used by the browser client to request the topology only.
const InitialStimulus = "initial"
