package adapter

var FirestoreScore = firestoreScore
