package guidance

import "encoding/json"

// systemPrompt establishes the assistant role and the hard output
// constraints. Suggestion emptiness on non-choice steps is stated here as
// a prompt-level contract and additionally enforced mechanically after
// parsing.
const systemPrompt = `You are a careful, non-clinical reflective assistant.
The user is completing the 'Uncovering Your False Identity' exercise.
Provide gentle guidance for the next question only, based on all answers so far.
Always provide guidance and 2-4 short hint bullets.
If the next question is the false-identity choice, suggest up to 3 identities from the provided dataset.
If the next question is not the choice step, return suggestions as an empty array.
Use only the provided identity IDs and titles; do not invent new IDs.
Avoid diagnosing. Use compassionate, non-shaming language.
Return strict JSON that matches the response schema with no extra keys.`

// schemaName labels the structured-output directive.
const schemaName = "exercise_guidance"

// responseSchema is the JSON schema the model output must conform to. It
// is passed as the structured-output constraint and restated verbatim in
// the prompt body as a safety net for providers that ignore the directive.
var responseSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "guidance": { "type": "string" },
    "hintBullets": { "type": "array", "items": { "type": "string" }, "minItems": 2, "maxItems": 4 },
    "suggestions": {
      "type": "array",
      "maxItems": 3,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "identityId": { "type": "string" },
          "title": { "type": "string" },
          "reason": { "type": "string" }
        },
        "required": ["identityId", "title", "reason"]
      }
    }
  },
  "required": ["guidance", "hintBullets", "suggestions"]
}`)
