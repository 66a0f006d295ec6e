package movie

var FormatScore = formatScore
