package urls

// APIKeys is where a user creates or revokes Sensibo API keys.
const APIKeys = "https://home.sensibo.com/me/api"

// APIReference documents the endpoints smartac talks to.
const APIReference = "https://sensibo.github.io/"

// StatusPage reports Sensibo cloud incidents.
const StatusPage = "https://status.sensibo.com/"

// Project is the smartac source repository.
const Project = "https://github.com/muurk/smartac"
